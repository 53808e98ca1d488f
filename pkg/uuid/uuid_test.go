// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/comicrewriter/pkg/uuid"
)

/*
TestNew_UniqueAcrossLargeBatch generates more identifiers than a realistic
upload batch and checks none repeat.
*/
func TestNew_UniqueAcrossLargeBatch(t *testing.T) {
	const batch = 20000
	seen := make(map[string]struct{}, batch)

	for i := 0; i < batch; i++ {
		id := uuid.New()
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestValid(t *testing.T) {
	assert.True(t, uuid.Valid(uuid.New()))
	assert.False(t, uuid.Valid("not-a-uuid"))
	assert.False(t, uuid.Valid(""))
}
