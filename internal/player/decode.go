package player

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
)

type audioFormat int

const (
	formatMP3 audioFormat = iota
	formatFLAC
)

func (f audioFormat) String() string {
	if f == formatFLAC {
		return "FLAC"
	}
	return "MP3"
}

var errUnsupportedFormat = errors.New("unsupported audio format")

// detectFormat picks the decoder from the Content-Type, falling back to
// the stream's magic bytes. The reader is left at offset 0.
func detectFormat(contentType string, r io.ReadSeeker) (audioFormat, error) {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "audio/mpeg", "audio/mp3", "audio/mpeg3":
			return formatMP3, nil
		case "audio/flac", "audio/x-flac":
			return formatFLAC, nil
		}
		if strings.HasPrefix(mediaType, "audio/") && mediaType != "audio/octet-stream" {
			return 0, fmt.Errorf("%w: %s", errUnsupportedFormat, mediaType)
		}
	}

	if err := skipID3v2(r); err != nil {
		return 0, err
	}
	magic := make([]byte, 4)
	n, err := io.ReadFull(r, magic)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	switch {
	case n == 4 && string(magic) == "fLaC":
		return formatFLAC, nil
	case n >= 2 && magic[0] == 0xFF && magic[1]&0xE0 == 0xE0:
		return formatMP3, nil
	case n >= 3 && string(magic[:3]) == "ID3":
		return formatMP3, nil
	}
	return 0, errUnsupportedFormat
}

// decode opens a beep streamer for rsc in the given format.
func decode(format audioFormat, rsc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	switch format {
	case formatFLAC:
		// Some taggers prepend ID3v2 to FLAC, which the decoder rejects.
		if err := skipID3v2(rsc); err != nil {
			return nil, beep.Format{}, err
		}
		return flac.Decode(rsc)
	default:
		return decodeGoMP3(rsc)
	}
}

// skipID3v2 positions r after an ID3v2 tag, or at 0 when there is none.
func skipID3v2(r io.ReadSeeker) error {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return err
	}

	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if n < 10 || string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// Tag size is a syncsafe integer: 7 bits per byte.
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
