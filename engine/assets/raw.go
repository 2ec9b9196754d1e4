package assets

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/klauspost/compress/zstd"

	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

// RawExtension is the file suffix of zstd compressed raw pixel dumps.
const RawExtension = ".vgraw.zst"

var rawMagic = [4]byte{'V', 'G', 'R', 'W'}

// rawHeader precedes the pixel rows of a dump, little endian.
type rawHeader struct {
	Magic  [4]byte
	Format uint32
	Width  uint32
	Height uint32
}

var ErrInvalidRaw = errors.New("invalid raw pixel dump")

// EncodeRaw writes pb as a header followed by tightly packed rows, the
// whole stream zstd compressed.
func EncodeRaw(w io.Writer, pb *metadata.PixelBuffer) error {
	if err := pb.Validate(); err != nil {
		return err
	}
	var raw bytes.Buffer
	hdr := rawHeader{
		Magic:  rawMagic,
		Format: uint32(pb.Format),
		Width:  uint32(pb.Width),
		Height: uint32(pb.Height),
	}
	if err := binary.Write(&raw, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	row := int(pb.Width) * metadata.BytesPerPixel
	for y := int32(0); y < pb.Height; y++ {
		off := pb.Offset(0, y)
		raw.Write(pb.Data[off : off+row])
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(runtime.NumCPU()))
	if err != nil {
		return err
	}
	if _, err := enc.Write(raw.Bytes()); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func DecodeRaw(r io.Reader) (*metadata.PixelBuffer, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	plain, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}

	var hdr rawHeader
	if err := binary.Read(bytes.NewReader(plain), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: truncated header", ErrInvalidRaw)
	}
	if hdr.Magic != rawMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidRaw, hdr.Magic[:])
	}
	if !metadata.IsValidFormat(metadata.ImageFormat(hdr.Format)) {
		return nil, fmt.Errorf("%w: format %#x", ErrInvalidRaw, hdr.Format)
	}
	if hdr.Width == 0 || hdr.Height == 0 || hdr.Width > 1<<16 || hdr.Height > 1<<16 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidRaw, hdr.Width, hdr.Height)
	}

	pixels := plain[binary.Size(hdr):]
	if want := int(hdr.Width) * int(hdr.Height) * metadata.BytesPerPixel; len(pixels) != want {
		return nil, fmt.Errorf("%w: %d pixel bytes, want %d", ErrInvalidRaw, len(pixels), want)
	}
	pb := metadata.NewPixelBuffer(pixels, int32(hdr.Width), int32(hdr.Height))
	pb.Format = metadata.ImageFormat(hdr.Format)
	return pb, nil
}

func SaveRaw(path string, pb *metadata.PixelBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeRaw(f, pb); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func LoadRaw(path string) (*metadata.PixelBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pb, err := DecodeRaw(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return pb, nil
}
