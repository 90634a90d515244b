package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/synapse-directory/synapse/internal/directory"
	"github.com/synapse-directory/synapse/internal/location"
)

// sampleListings is used when no -file is given.
var sampleListings = []map[string]string{
	{
		directory.FieldBusinessName:   "Rock Fort Filter Coffee",
		directory.FieldAddress:        "12 NSB Road, Tiruchirappalli",
		directory.FieldPhone:          "0431-2700001",
		directory.FieldWorkingHours:   "6 AM - 9 PM",
		directory.FieldSpecialization: "Filter coffee and tiffin",
		directory.FieldWhyVisit:       "Brewed the old way at the foot of the fort",
		directory.FieldLocationLink:   location.FallbackRef(),
	},
	{
		directory.FieldBusinessName:   "Srirangam Silk House",
		directory.FieldAddress:        "4 North Chitrai Street, Srirangam",
		directory.FieldPhone:          "0431-2400002",
		directory.FieldWorkingHours:   "10 AM - 8 PM",
		directory.FieldSpecialization: "Handloom silk sarees",
		directory.FieldWhyVisit:       "Weavers' cooperative prices",
		directory.FieldLocationLink:   location.Point{Lat: 10.8625, Lng: 78.6896}.Ref(),
	},
	{
		directory.FieldBusinessName:   "Cauvery Cycle Works",
		directory.FieldAddress:        "88 Salai Road, Thillai Nagar",
		directory.FieldPhone:          "0431-2760003",
		directory.FieldWorkingHours:   "8 AM - 7 PM",
		directory.FieldSpecialization: "Bicycle repair and rentals",
		directory.FieldWhyVisit:       "Same-day repairs",
		directory.FieldLocationLink:   location.Point{Lat: 10.8275, Lng: 78.6862}.Ref(),
	},
}

func main() {
	file := flag.String("file", "", "JSON array of listings keyed by form field name")
	flag.Parse()

	// The hosted deployment is never a default target for seeding.
	createURL := os.Getenv("DIRECTORY_CREATE_URL")
	if createURL == "" {
		log.Fatal("DIRECTORY_CREATE_URL must point at a development directory API")
	}

	listings := sampleListings
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("read %s: %v", *file, err)
		}
		if err := json.Unmarshal(data, &listings); err != nil {
			log.Fatalf("parse %s: %v", *file, err)
		}
	}

	client := directory.NewClient(directory.Endpoints{Create: createURL},
		directory.WithHTTPClient(&http.Client{Timeout: getenvDuration("DIRECTORY_TIMEOUT", 15*time.Second)}))
	ctx := context.Background()

	fmt.Println("→ Seeding listings...")
	for _, values := range listings {
		draft := directory.DraftFromValues("", values)
		if err := client.Create(ctx, draft); err != nil {
			log.Fatalf("seed %q: %v", values[directory.FieldBusinessName], err)
		}
		fmt.Println("  +", values[directory.FieldBusinessName])
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
