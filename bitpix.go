package fits

import "github.com/gofits/fits/internal/core"

// Bitpix identifies an HDU's data element type.
type Bitpix = core.Bitpix

// BITPIX values supported by this library.
const (
	BitpixUint8   = core.BitpixUint8
	BitpixInt16   = core.BitpixInt16
	BitpixInt32   = core.BitpixInt32
	BitpixInt64   = core.BitpixInt64
	BitpixFloat32 = core.BitpixFloat32
	BitpixFloat64 = core.BitpixFloat64
)

// HDUSchema describes one HDU's shape ahead of writing it with Create.
type HDUSchema = core.HDUSchema

// Visitor dispatches on an HDU's BITPIX; see HDU.Apply.
type Visitor = core.Visitor
