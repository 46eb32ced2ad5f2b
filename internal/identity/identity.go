// Package identity derives stable document ids from record titles.
package identity

import (
	"crypto/md5" //nolint:gosec // ids must match the existing corpus, which is keyed by md5(title)
	"encoding/hex"
)

// Resolver maps a title to its document identity.
type Resolver struct{}

// New returns a title-based identity resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve returns the md5 hex digest of the exact UTF-8 title bytes.
// No case folding or whitespace trimming is applied before hashing, so
// titles differing only in case map to distinct documents. Inherited
// behavior: the stored corpus is already keyed this way.
func (r *Resolver) Resolve(title string) string {
	sum := md5.Sum([]byte(title)) //nolint:gosec // not used for security
	return hex.EncodeToString(sum[:])
}
