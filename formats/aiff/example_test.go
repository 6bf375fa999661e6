// SPDX-License-Identifier: EPL-2.0

package aiff_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/formats/aiff"
)

// ExampleDecoder_Decode shows how to decode an AIFF file.
func ExampleDecoder_Decode() {
	f, err := os.Open("input.aiff")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	src, err := aiff.Decoder{}.Decode(f)
	if err != nil {
		log.Fatal(err)
	}
	defer src.Close()

	fmt.Printf("Decoded AIFF: %d Hz, %d channels\n",
		src.SampleRate(), src.Channels())

	buf := make([]float32, 4096)
	var total int
	for {
		n, err := src.ReadSamples(buf)
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
	}
	fmt.Printf("Streamed %d samples\n", total)
}

// ExampleDecoder_Decode_errorHandling shows error handling for invalid AIFF files.
func ExampleDecoder_Decode_errorHandling() {
	_, err := aiff.Decoder{}.Decode(bytes.NewReader([]byte("not an aiff file")))

	switch {
	case errors.Is(err, audio.ErrUnsupported):
		fmt.Println("unsupported input")
	case errors.Is(err, audio.ErrCorrupt):
		fmt.Println("damaged AIFF file")
	}
	// Output: unsupported input
}
