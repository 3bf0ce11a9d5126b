package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"luxrent/internal/domain/availability"
	domaincars "luxrent/internal/domain/cars"
	"luxrent/internal/domain/pricing"
	"luxrent/internal/domain/shared/dateonly"
	"luxrent/internal/domain/shared/money"
)

type carFixtures struct {
	Cars []carFixture `yaml:"cars"`
}

// carFixture mirrors the catalog document. Prices stay untyped because the
// catalog stores them as numbers or strings.
type carFixture struct {
	ID      string `yaml:"id"`
	Brand   string `yaml:"brand"`
	Model   string `yaml:"model"`
	Pricing struct {
		Daily   any `yaml:"daily"`
		Weekly  any `yaml:"weekly"`
		Monthly any `yaml:"monthly"`
	} `yaml:"pricing"`
	UnavailableDates []struct {
		From      string `yaml:"from"`
		To        string `yaml:"to"`
		Reference string `yaml:"reference"`
	} `yaml:"unavailableDates"`
}

// DecodeCarFixtures reads a YAML catalog into car aggregates.
func DecodeCarFixtures(r io.Reader) ([]*domaincars.Car, error) {
	var doc carFixtures
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	out := make([]*domaincars.Car, 0, len(doc.Cars))
	for _, fx := range doc.Cars {
		blocks := make([]availability.BlockedRange, 0, len(fx.UnavailableDates))
		for _, u := range fx.UnavailableDates {
			from, err := dateonly.Parse(u.From)
			if err != nil {
				return nil, fmt.Errorf("car %s: unavailable from: %w", fx.ID, err)
			}
			to, err := dateonly.Parse(u.To)
			if err != nil {
				return nil, fmt.Errorf("car %s: unavailable to: %w", fx.ID, err)
			}
			blocks = append(blocks, availability.BlockedRange{From: from, To: to, Reference: u.Reference})
		}
		car, err := domaincars.NewCar(domaincars.CreateParams{
			ID:    domaincars.CarID(fx.ID),
			Brand: fx.Brand,
			Model: fx.Model,
			Pricing: pricing.RateSchedule{
				Daily:   money.Coerce(fx.Pricing.Daily),
				Weekly:  money.Coerce(fx.Pricing.Weekly),
				Monthly: money.Coerce(fx.Pricing.Monthly),
			},
			Unavailable: blocks,
		})
		if err != nil {
			return nil, fmt.Errorf("car %q: %w", fx.ID, err)
		}
		out = append(out, car)
	}
	return out, nil
}

// SeedCars loads the fixtures file at path into repo. A missing file is not
// an error.
func SeedCars(ctx context.Context, repo domaincars.Repository, path string, logger *slog.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if logger != nil {
				logger.Info("car fixtures file not found, skipping", "path", path)
			}
			return 0, nil
		}
		return 0, fmt.Errorf("read fixtures: %w", err)
	}
	defer f.Close()

	cars, err := DecodeCarFixtures(f)
	if err != nil {
		return 0, err
	}
	for _, car := range cars {
		if err := repo.Save(ctx, car); err != nil {
			return 0, fmt.Errorf("store car %s: %w", car.ID, err)
		}
		if logger != nil {
			logger.Debug("car fixture imported", "car_id", car.ID, "blocked", len(car.Blocked()))
		}
	}
	return len(cars), nil
}
