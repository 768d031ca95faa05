package services

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

const (
	printTileSize = 2048
	printDPI      = 300
)

// encodePrintTIFF decodes the source image, resamples it to the square
// print tile size, and encodes it as an LZW-compressed TIFF stamped at
// 300 DPI.
func encodePrintTIFF(source []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to decode pattern image: %w", err)
	}

	scaled := image.NewRGBA(image.Rect(0, 0, printTileSize, printTileSize))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := tiff.Encode(&buf, scaled, &tiff.Options{Compression: tiff.LZW}); err != nil {
		return nil, fmt.Errorf("failed to encode tiff: %w", err)
	}

	out := buf.Bytes()
	if err := patchTIFFResolution(out, printDPI); err != nil {
		return nil, err
	}
	return out, nil
}

// TIFF tags and field types involved in the resolution patch.
const (
	tagXResolution = 282
	tagYResolution = 283
	typeRational   = 5
)

// patchTIFFResolution rewrites the XResolution and YResolution rationals in
// place. The encoder always writes 72/1; print vendors require the file to
// declare its real density. Only little-endian files are handled, which is
// what the encoder produces.
func patchTIFFResolution(data []byte, dpi uint32) error {
	if len(data) < 8 || data[0] != 'I' || data[1] != 'I' {
		return fmt.Errorf("unexpected tiff layout")
	}
	le := binary.LittleEndian

	ifdOffset := le.Uint32(data[4:8])
	if int(ifdOffset)+2 > len(data) {
		return fmt.Errorf("tiff ifd offset out of range")
	}

	count := int(le.Uint16(data[ifdOffset : ifdOffset+2]))
	entries := int(ifdOffset) + 2
	for i := 0; i < count; i++ {
		entry := entries + i*12
		if entry+12 > len(data) {
			return fmt.Errorf("tiff ifd entry out of range")
		}
		tag := le.Uint16(data[entry : entry+2])
		fieldType := le.Uint16(data[entry+2 : entry+4])
		if (tag != tagXResolution && tag != tagYResolution) || fieldType != typeRational {
			continue
		}
		// A rational does not fit the 4-byte value field, so it holds an
		// offset to the numerator/denominator pair.
		valueOffset := le.Uint32(data[entry+8 : entry+12])
		if int(valueOffset)+8 > len(data) {
			return fmt.Errorf("tiff resolution value out of range")
		}
		le.PutUint32(data[valueOffset:valueOffset+4], dpi)
		le.PutUint32(data[valueOffset+4:valueOffset+8], 1)
	}
	return nil
}
