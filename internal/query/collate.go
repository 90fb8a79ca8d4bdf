package query

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// A Collator keeps scratch buffers, so it is shared behind a lock.
var (
	collatorMu sync.Mutex
	collator   = collate.New(language.English, collate.Numeric)
)

// compareText orders strings the way people read them: digit runs compare as
// numbers, so "%%2%%" sorts before "%%10%%".
func compareText(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()

	return collator.CompareString(a, b)
}
