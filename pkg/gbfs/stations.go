package gbfs

import (
	"context"
	"slices"
)

// ListStationInformation returns every station of the station_information feed
func (r *Resolver) ListStationInformation(ctx context.Context) ([]StationInformation, error) {
	var payload stationInformationPayload
	if err := r.fetchInto(ctx, FeedStationInformation, stationsSchema, &payload); err != nil {
		return nil, err
	}
	return payload.Data.Stations, nil
}

// GetStationInformation returns the station_information entry of stationID
func (r *Resolver) GetStationInformation(ctx context.Context, stationID string) (*StationInformation, error) {
	stations, err := r.ListStationInformation(ctx)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(stations, func(s StationInformation) bool { return s.StationID == stationID })
	if i < 0 {
		return nil, &NotFoundError{Feed: FeedStationInformation, StationID: stationID}
	}
	return &stations[i], nil
}

// ListStationStatus returns every station of the station_status feed
func (r *Resolver) ListStationStatus(ctx context.Context) ([]StationStatus, error) {
	var payload stationStatusPayload
	if err := r.fetchInto(ctx, FeedStationStatus, stationsSchema, &payload); err != nil {
		return nil, err
	}
	return payload.Data.Stations, nil
}

// GetStationStatus returns the station_status entry of stationID
func (r *Resolver) GetStationStatus(ctx context.Context, stationID string) (*StationStatus, error) {
	stations, err := r.ListStationStatus(ctx)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(stations, func(s StationStatus) bool { return s.StationID == stationID })
	if i < 0 {
		return nil, &NotFoundError{Feed: FeedStationStatus, StationID: stationID}
	}
	return &stations[i], nil
}

// SystemInformation returns the system_information feed's data
func (r *Resolver) SystemInformation(ctx context.Context) (*SystemInformation, error) {
	var payload systemInformationPayload
	if err := r.fetchInto(ctx, FeedSystemInformation, feedSchema, &payload); err != nil {
		return nil, err
	}
	if payload.Data.SystemID == "" {
		return nil, &InvalidResponseError{Feed: FeedSystemInformation, Reason: "missing system_id"}
	}
	return &payload.Data, nil
}
