package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"civicsense-be/config"
)

// GeoResult is what reverse geocoding yields. Area and City always carry a
// usable value; Address may be nil.
type GeoResult struct {
	Address *string
	Area    string
	City    string
}

// DefaultGeoResult is used whenever geocoding fails; a geocoder failure is
// never fatal to complaint creation.
func DefaultGeoResult() GeoResult {
	return GeoResult{Area: config.UnknownArea, City: config.DefaultCity}
}

// Geocoder resolves coordinates to a locality.
type Geocoder interface {
	Reverse(ctx context.Context, lng, lat float64) (GeoResult, error)
}

// NominatimGeocoder reverse-geocodes against the OpenStreetMap Nominatim API.
// Free, no API key.
type NominatimGeocoder struct {
	BaseURL string
	Client  *http.Client
}

func NewNominatimGeocoder() *NominatimGeocoder {
	return &NominatimGeocoder{
		BaseURL: "https://nominatim.openstreetmap.org",
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (g *NominatimGeocoder) Reverse(ctx context.Context, lng, lat float64) (GeoResult, error) {
	url := fmt.Sprintf("%s/reverse?lat=%f&lon=%f&format=json&accept-language=en", g.BaseURL, lat, lng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return DefaultGeoResult(), err
	}
	// Nominatim requires an identifying User-Agent.
	req.Header.Set("User-Agent", "CivicSense/1.0 (civic issue reporting platform)")

	res, err := g.Client.Do(req)
	if err != nil {
		return DefaultGeoResult(), err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return DefaultGeoResult(), fmt.Errorf("nominatim returned status %d", res.StatusCode)
	}

	var payload struct {
		Error       string `json:"error"`
		DisplayName string `json:"display_name"`
		Address     struct {
			Neighbourhood string `json:"neighbourhood"`
			Suburb        string `json:"suburb"`
			Village       string `json:"village"`
			Town          string `json:"town"`
			County        string `json:"county"`
			City          string `json:"city"`
			StateDistrict string `json:"state_district"`
		} `json:"address"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return DefaultGeoResult(), err
	}
	if payload.Error != "" {
		return DefaultGeoResult(), fmt.Errorf("nominatim: %s", payload.Error)
	}

	result := DefaultGeoResult()

	// Area preference: neighbourhood > suburb > village > town > county
	addr := payload.Address
	for _, candidate := range []string{addr.Neighbourhood, addr.Suburb, addr.Village, addr.Town, addr.County} {
		if candidate != "" {
			result.Area = candidate
			break
		}
	}

	// City preference: city > town > state_district
	for _, candidate := range []string{addr.City, addr.Town, addr.StateDistrict} {
		if candidate != "" {
			result.City = candidate
			break
		}
	}

	if payload.DisplayName != "" {
		result.Address = &payload.DisplayName
	}
	return result, nil
}
