package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"astrascore/internal/festival"
)

// DecodeFestivals reads one festival per YAML document.
func DecodeFestivals(r io.Reader) ([]festival.Festival, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var out []festival.Festival
	for {
		var f festival.Festival
		err := dec.Decode(&f)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode festival %d: %w", len(out)+1, err)
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, errors.New("no festivals in input")
	}
	return out, nil
}

// ImportFestivals saves every festival of r and stops at the first failure.
func ImportFestivals(ctx context.Context, svc *festival.Service, r io.Reader) ([]festival.Festival, error) {
	festivals, err := DecodeFestivals(r)
	if err != nil {
		return nil, err
	}
	saved := make([]festival.Festival, 0, len(festivals))
	for _, f := range festivals {
		out, err := svc.SaveFestival(ctx, f)
		if err != nil {
			return saved, fmt.Errorf("save festival %q: %w", f.Name, err)
		}
		saved = append(saved, out)
	}
	return saved, nil
}
