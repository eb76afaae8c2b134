// Package archive implements the ZenGin archive subsystem: a self-describing,
// versioned, reference-deduplicated object graph serialized through one of
// three interchangeable back-ends (ASCII, BINARY, BINSAFE)
package archive

import (
	"strconv"
	"strings"

	"github.com/gothicgo/zengin/internal/zlog"
	"github.com/gothicgo/zengin/stream"
	"github.com/gothicgo/zengin/zgerr"
)

// Format identifies which back-end encodes the archive body.
type Format int

const (
	FormatUnknown Format = iota
	FormatASCII
	FormatBinary
	FormatBinsafe
)

func (f Format) String() string {
	switch f {
	case FormatASCII:
		return "ASCII"
	case FormatBinary:
		return "BINARY"
	case FormatBinsafe:
		return "BIN_SAFE"
	default:
		return "UNKNOWN"
	}
}

// Header is the shared preamble every back-end begins with.
type Header struct {
	Version  int
	Archiver string
	Format   Format
	Save     bool
	User     string
	Date     string
}

// loadHeader parses the marker line, version, archiver name, format tag,
// save-game flag, and optional date/user lines terminated by END.
func loadHeader(r stream.Stream) (Header, error) {
	var h Header

	line, err := r.ReadLine(true)
	if err != nil {
		return h, zgerr.Wrap(zgerr.KindHeader, "read marker", err)
	}
	if line != "ZenGin Archive" {
		return h, zgerr.Wrap(zgerr.KindHeader, "marker line", zgerr.ErrBadMarker)
	}

	verLine, err := r.ReadLine(true)
	if err != nil {
		return h, zgerr.Wrap(zgerr.KindHeader, "read version", err)
	}
	ver, ok := fieldValue(verLine, "ver ")
	if !ok {
		return h, zgerr.New(zgerr.KindHeader, "ver field missing")
	}
	h.Version, err = strconv.Atoi(ver)
	if err != nil {
		return h, zgerr.Wrap(zgerr.KindHeader, "parse version", err)
	}
	if h.Version != 1 {
		return h, zgerr.Wrap(zgerr.KindHeader, "version check", zgerr.ErrUnsupportedVersion)
	}

	h.Archiver, err = r.ReadLine(true)
	if err != nil {
		return h, zgerr.Wrap(zgerr.KindHeader, "read archiver", err)
	}

	fmtLine, err := r.ReadLine(true)
	if err != nil {
		return h, zgerr.Wrap(zgerr.KindHeader, "read format", err)
	}
	switch fmtLine {
	case "ASCII":
		h.Format = FormatASCII
	case "BINARY":
		h.Format = FormatBinary
	case "BIN_SAFE":
		h.Format = FormatBinsafe
	default:
		return h, zgerr.Wrap(zgerr.KindHeader, "format field", zgerr.ErrUnknownFormat)
	}

	saveLine, err := r.ReadLine(true)
	if err != nil {
		return h, zgerr.Wrap(zgerr.KindHeader, "read saveGame", err)
	}
	saveVal, ok := fieldValue(saveLine, "saveGame ")
	if !ok {
		return h, zgerr.New(zgerr.KindHeader, "saveGame field missing")
	}
	saveInt, err := strconv.Atoi(saveVal)
	if err != nil {
		return h, zgerr.Wrap(zgerr.KindHeader, "parse saveGame", err)
	}
	h.Save = saveInt != 0

	optional, err := r.ReadLine(true)
	if err != nil {
		return h, zgerr.Wrap(zgerr.KindHeader, "read optional line", err)
	}
	if v, ok := fieldValue(optional, "date "); ok {
		h.Date = v
		optional, err = r.ReadLine(true)
		if err != nil {
			return h, zgerr.Wrap(zgerr.KindHeader, "read optional line", err)
		}
	}
	if v, ok := fieldValue(optional, "user "); ok {
		h.User = v
		optional, err = r.ReadLine(true)
		if err != nil {
			return h, zgerr.Wrap(zgerr.KindHeader, "read optional line", err)
		}
	}
	if optional != "END" {
		return h, zgerr.Wrap(zgerr.KindHeader, "first END", zgerr.ErrMissingEnd)
	}

	return h, nil
}

func fieldValue(line, prefix string) (string, bool) {
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return line[len(prefix):], true
}

// saveHeader writes the shared preamble, symmetric with loadHeader.
func saveHeader(w stream.Stream, h Header) error {
	if err := w.WriteLine("ZenGin Archive"); err != nil {
		return err
	}
	if err := w.WriteLine("ver 1"); err != nil {
		return err
	}
	if err := w.WriteLine(h.Archiver); err != nil {
		return err
	}
	if err := w.WriteLine(h.Format.String()); err != nil {
		return err
	}
	saveFlag := "0"
	if h.Save {
		saveFlag = "1"
	}
	if err := w.WriteLine("saveGame " + saveFlag); err != nil {
		return err
	}
	if h.Date != "" {
		if err := w.WriteLine("date " + h.Date); err != nil {
			return err
		}
	}
	if h.User != "" {
		if err := w.WriteLine("user " + h.User); err != nil {
			return err
		}
	}
	return w.WriteLine("END")
}

var log = zlog.Default()
