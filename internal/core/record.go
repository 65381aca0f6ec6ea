package core

// PersistColumns returns every persisted column in catalog order.
func PersistColumns() []Field {
	out := make([]Field, len(FieldSpecs))
	for i, spec := range FieldSpecs {
		out[i] = spec.Field
	}
	return out
}

// Value returns the record's value for f as a time.Time, string,
// decimal.Decimal or int. Empty optional text is returned as nil.
func (r FlightRecord) Value(f Field) any {
	switch f {
	case FieldDate:
		return r.Date
	case FieldAircraftID:
		return r.AircraftID
	case FieldAircraftType:
		return r.AircraftType
	case FieldDeparture:
		return r.Departure
	case FieldArrival:
		return r.Arrival
	case FieldRoute:
		return optionalText(r.Route)
	case FieldRemarks:
		return optionalText(r.Remarks)
	case FieldStartTime:
		return optionalText(r.StartTime)
	case FieldEndTime:
		return optionalText(r.EndTime)
	}
	for _, h := range r.hoursFields() {
		if h.field == f {
			return h.value
		}
	}
	for _, c := range r.countFields() {
		if c.field == f {
			return c.value
		}
	}
	return nil
}

func optionalText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
