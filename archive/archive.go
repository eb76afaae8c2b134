package archive

import (
	"github.com/gothicgo/zengin/stream"
	"github.com/gothicgo/zengin/zgerr"
)

// Open parses the shared header from s and returns a Reader for whichever
// back-end the header names "Archive Header and Back-End
// Selection".
func Open(s stream.Stream) (Reader, error) {
	h, err := loadHeader(s)
	if err != nil {
		return nil, err
	}

	switch h.Format {
	case FormatASCII:
		return newASCIIReader(s, h)
	case FormatBinary:
		return newBinaryReader(s, h), nil
	case FormatBinsafe:
		return newBinsafeReader(s, h)
	default:
		return nil, zgerr.Wrap(zgerr.KindHeader, "select back-end", zgerr.ErrUnknownFormat)
	}
}

// Create opens a Writer over s for the requested back-end and header
// metadata. objectCount is only meaningful for ASCII, which declares an
// upfront object total; pass 0 if unknown (the ASCII back-end's count is
// advisory, readers never validate it against the actual object graph).
func Create(s stream.Stream, format Format, h Header, objectCount int) (Writer, error) {
	h.Format = format
	h.Version = 1

	switch format {
	case FormatASCII:
		return newASCIIWriter(s, h, objectCount)
	case FormatBinary:
		return newBinaryWriter(s, h)
	case FormatBinsafe:
		return newBinsafeWriter(s, h)
	default:
		return nil, zgerr.Wrap(zgerr.KindHeader, "select back-end", zgerr.ErrUnknownFormat)
	}
}

// WriteObject writes obj fully: begin, field serialization via obj.Save,
// then end; the writer-side mirror of Reader.ReadObject.
func WriteObject(w Writer, objectName, className string, version GameVersion, obj Persistable) error {
	minVer, err := MinVersion(className, version)
	if err != nil {
		return err
	}
	w.WriteObjectBegin(objectName, className, minVer)
	if err := obj.Save(w, version); err != nil {
		return err
	}
	w.WriteObjectEnd()
	return nil
}
