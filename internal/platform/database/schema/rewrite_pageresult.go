package schema

// RewritePageResultTable represents the 'rewrite.pageresult' table
type RewritePageResultTable struct {
	Table      string
	ID         string
	BatchID    string
	ChapterID  string
	PageID     string
	PageName   string
	PagePath   string
	Status     string
	Result     string
	Error      string
	Language   string
	DurationMs string
	CreatedAt  string
}

// RewritePageResult is the schema definition for rewrite.pageresult
var RewritePageResult = RewritePageResultTable{
	Table:      "rewrite.pageresult",
	ID:         "id",
	BatchID:    "batchid",
	ChapterID:  "chapterid",
	PageID:     "pageid",
	PageName:   "pagename",
	PagePath:   "pagepath",
	Status:     "status",
	Result:     "result",
	Error:      "error",
	Language:   "language",
	DurationMs: "durationms",
	CreatedAt:  "createdat",
}

func (t RewritePageResultTable) Columns() []string {
	return []string{
		t.ID, t.BatchID, t.ChapterID, t.PageID, t.PageName, t.PagePath,
		t.Status, t.Result, t.Error, t.Language, t.DurationMs, t.CreatedAt,
	}
}
