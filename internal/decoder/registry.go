package decoder

// This file is intentionally left without built-in registrations:
// wiring concrete decoder implementations into a Factory here would
// make this package depend on every decoder package. cmd/chafka
// performs the registration at startup (see its newFactory helper).
