package fits

import "github.com/gofits/fits/internal/utils"

// Error kinds returned by this package, re-exported from the internal
// error taxonomy so callers never need to import internal/utils
// directly.
const (
	KindNotFound          = utils.KindNotFound
	KindOutOfBounds       = utils.KindOutOfBounds
	KindHeaderFull        = utils.KindHeaderFull
	KindParseError        = utils.KindParseError
	KindFormatError       = utils.KindFormatError
	KindUnsupportedBitpix = utils.KindUnsupportedBitpix
	KindIO                = utils.KindIO
	KindCancelled         = utils.KindCancelled
)

// ErrorKind classifies an error returned by this package.
type ErrorKind = utils.ErrorKind

// IsKind reports whether err is (or wraps) a *FITSError of the given
// kind.
func IsKind(err error, kind ErrorKind) bool {
	return utils.Is(err, kind)
}
