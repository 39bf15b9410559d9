package etl_test

import (
	"context"
	"fmt"
	"log"

	etl "github.com/BEN-DataDev/orgs-sveltekit-etl"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/sources"
)

func Example() {
	charities := sources.ExtractorFunc{
		ID: records.SourceACNC,
		Fn: func(context.Context, sources.Filter) (records.Set, error) {
			return records.Set{ACNC: []records.ACNC{{ABN: "11", LegalName: "Alpha Aid"}}}, nil
		},
	}

	client, err := etl.New(etl.WithRegistry(sources.NewRegistry(charities)))
	if err != nil {
		log.Fatal(err)
	}

	result, err := client.SyncSource(context.Background(), "acnc", "nsw", "2000")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(result.Source, result.State, result.Postcode, result.RecordsProcessed)
	fmt.Println(result.Data[0].Key(), result.Data[0].Name())
	// Output:
	// acnc NSW 2000 1
	// 11 Alpha Aid
}

func ExampleClient_UploadPostcodes() {
	client, err := etl.New()
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()

	_, err = client.SyncAll(ctx, "VIC")
	fmt.Println(errors.IsNotFound(err))

	upload, err := client.UploadPostcodes(ctx, "vic", "vic.csv", "postcode\n3000\n3001\n3000\n")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(upload.Message)
	// Output:
	// true
	// Successfully uploaded 2 postcodes for VIC
}
