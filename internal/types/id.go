// README: Common identifier type shared across modules.
package types

// ID identifies drivers, riders, trips, offers, and devices.
type ID string

func (id ID) String() string { return string(id) }
