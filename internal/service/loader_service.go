package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"carrental/internal/db"
)

// LoaderStore is the write side of the repository used when seeding a
// company's fleet at startup.
type LoaderStore interface {
	CompanyExists(ctx context.Context, name string) (bool, error)
	CreateCompany(ctx context.Context, name string) error
	CreateCarType(ctx context.Context, ct db.CarType) error
	CreateCars(ctx context.Context, company, carType string, count int) error
}

// LoaderService materializes a company's fleet from a delimited data file
// with records `name,seats,trunkSpace,pricePerDay,smokingAllowed,count`.
// Lines starting with '#' are comments.
type LoaderService struct {
	Store LoaderStore
}

func NewLoaderService(store LoaderStore) *LoaderService {
	return &LoaderService{Store: store}
}

type fleetRecord struct {
	carType db.CarType
	count   int
}

// LoadCompanyIfAbsent seeds the company from the data file unless it is
// already present in the store.
func (s *LoaderService) LoadCompanyIfAbsent(ctx context.Context, company, datafile string) error {
	exists, err := s.Store.CompanyExists(ctx, company)
	if err != nil {
		return fmt.Errorf("error checking company %q: %w", company, err)
	}
	if exists {
		log.Printf("Company %q already loaded, skipping %s", company, datafile)
		return nil
	}

	f, err := os.Open(datafile)
	if err != nil {
		return fmt.Errorf("error opening data file %s: %w", datafile, err)
	}
	defer f.Close()

	log.Printf("Loading %q from file %s", company, datafile)
	return s.Load(ctx, company, f)
}

// Load parses the record stream and creates the company, its car types
// and count cars per record.
func (s *LoaderService) Load(ctx context.Context, company string, r io.Reader) error {
	records, err := parseFleetRecords(company, r)
	if err != nil {
		return err
	}

	if err := s.Store.CreateCompany(ctx, company); err != nil {
		return err
	}
	total := 0
	for _, rec := range records {
		if err := s.Store.CreateCarType(ctx, rec.carType); err != nil {
			return err
		}
		if err := s.Store.CreateCars(ctx, company, rec.carType.Name, rec.count); err != nil {
			return err
		}
		total += rec.count
	}
	log.Printf("Loaded %d car types, %d cars for %q", len(records), total, company)
	return nil
}

func parseFleetRecords(company string, r io.Reader) ([]fleetRecord, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = 6
	reader.TrimLeadingSpace = true

	var out []fleetRecord
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bad fleet record: %w", err)
		}

		seats, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("bad seats value %q: %w", fields[1], err)
		}
		trunk, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad trunk space value %q: %w", fields[2], err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad price value %q: %w", fields[3], err)
		}
		smoking, err := strconv.ParseBool(strings.TrimSpace(fields[4]))
		if err != nil {
			return nil, fmt.Errorf("bad smoking flag %q: %w", fields[4], err)
		}
		count, err := strconv.Atoi(strings.TrimSpace(fields[5]))
		if err != nil {
			return nil, fmt.Errorf("bad count value %q: %w", fields[5], err)
		}

		out = append(out, fleetRecord{
			carType: db.CarType{
				CompanyName:    company,
				Name:           strings.TrimSpace(fields[0]),
				Seats:          seats,
				TrunkSpace:     trunk,
				PricePerDay:    price,
				SmokingAllowed: smoking,
			},
			count: count,
		})
	}
	return out, nil
}
