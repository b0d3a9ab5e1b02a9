// Package mirror makes a destination directory tree match a source tree.
package mirror

import "context"

// DefaultExclude names the entries left alone in both trees: version-control
// metadata and restored dependency packages.
var DefaultExclude = []string{".git", "$tf", "packages"}

// Mirrorer synchronizes dst to match src. Entries matching an exclude
// pattern are neither copied from src nor deleted from dst.
type Mirrorer interface {
	Mirror(ctx context.Context, src, dst string, exclude []string) error
}
