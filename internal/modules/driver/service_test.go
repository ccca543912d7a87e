// README: Driver service tests over the in-memory store.
package driver

import (
	"context"
	"testing"
)

func TestRegisterValidation(t *testing.T) {
	svc := NewService(NewMemStore())
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  RegisterCommand
	}{
		{"missing user", RegisterCommand{Name: "A", LicenseNumber: "L1", Fleet: FleetRide, VehicleType: "Sedan"}},
		{"missing name", RegisterCommand{UserID: "u1", LicenseNumber: "L1", Fleet: FleetRide, VehicleType: "Sedan"}},
		{"bad fleet", RegisterCommand{UserID: "u1", Name: "A", LicenseNumber: "L1", Fleet: "boat"}},
		{"ride without vehicle type", RegisterCommand{UserID: "u1", Name: "A", LicenseNumber: "L1", Fleet: FleetRide}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.cmd); err != ErrBadRequest {
				t.Fatalf("expected ErrBadRequest, got %v", err)
			}
		})
	}

	// Tow drivers have no vehicle type requirement.
	d, err := svc.Register(ctx, RegisterCommand{UserID: "u2", Name: "Tow", LicenseNumber: "L2", Fleet: FleetTow})
	if err != nil {
		t.Fatalf("register tow driver: %v", err)
	}
	if d.Status != StatusPendingApproval {
		t.Errorf("expected new driver pending approval, got %s", d.Status)
	}
}

func TestSetAvailability(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store)
	ctx := context.Background()

	d, err := svc.Register(ctx, RegisterCommand{UserID: "u1", Name: "A", LicenseNumber: "L1", Fleet: FleetRide, VehicleType: "SUV"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// Not yet approved: cannot self-toggle.
	if err := svc.SetAvailability(ctx, d.ID, StatusAvailable); err != ErrBadRequest {
		t.Fatalf("expected ErrBadRequest before approval, got %v", err)
	}

	// Admin approval path writes directly to the store.
	if err := store.SetStatus(ctx, d.ID, StatusAvailable); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := svc.SetAvailability(ctx, d.ID, StatusOnTrip); err != nil {
		t.Fatalf("set on_trip: %v", err)
	}
	if err := svc.SetAvailability(ctx, d.ID, StatusBanned); err != ErrBadRequest {
		t.Fatalf("expected ErrBadRequest for self-ban, got %v", err)
	}
}

func TestListAvailableFiltersAndOrder(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	seed := []Driver{
		{ID: "d1", Fleet: FleetRide, VehicleType: "SUV", Status: StatusAvailable},
		{ID: "d2", Fleet: FleetRide, VehicleType: "Sedan", Status: StatusAvailable},
		{ID: "d3", Fleet: FleetRide, VehicleType: "SUV", Status: StatusOnTrip},
		{ID: "d4", Fleet: FleetTow, VehicleType: "", Status: StatusAvailable},
		{ID: "d5", Fleet: FleetRide, VehicleType: "SUV", Status: StatusAvailable},
	}
	for i := range seed {
		if err := store.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := store.ListAvailable(ctx, FleetRide, "SUV")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "d1" || got[1].ID != "d5" {
		t.Fatalf("expected [d1 d5] in insertion order, got %v", got)
	}

	tow, err := store.ListAvailable(ctx, FleetTow, "")
	if err != nil {
		t.Fatalf("list tow: %v", err)
	}
	if len(tow) != 1 || tow[0].ID != "d4" {
		t.Fatalf("expected [d4], got %v", tow)
	}
}
