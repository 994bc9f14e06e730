package order

// RequiresPrescription reports whether a product may only be sold against a
// prescription. A sparse catalog record without flags or schedule is treated
// as over-the-counter; malformed products never fail evaluation.
func RequiresPrescription(p *Product) bool {
	if p == nil {
		return false
	}
	if p.Schedule != "" {
		return p.Schedule.RequiresPrescription()
	}
	return p.RequiresPrescription
}

// IsControlledSubstance reports whether a product is subject to the
// controlled drugs register.
func IsControlledSubstance(p *Product) bool {
	if p == nil {
		return false
	}
	if p.Schedule != "" {
		return p.Schedule.Controlled()
	}
	return p.IsControlledSubstance
}

// LineRequiresPrescription reports whether the line's product requires a
// prescription.
func LineRequiresPrescription(l *Line) bool {
	if l == nil {
		return false
	}
	return RequiresPrescription(l.Product)
}

// HasPrescriptionItems reports whether any line requires a prescription.
// Pure function of the current lines; callers re-run it whenever lines
// change.
func HasPrescriptionItems(o *Order) bool {
	for i := range o.Lines {
		if LineRequiresPrescription(&o.Lines[i]) {
			return true
		}
	}
	return false
}

// HasControlledSubstances reports whether any line is a controlled
// substance. Not persisted; recomputed on demand.
func HasControlledSubstances(o *Order) bool {
	for i := range o.Lines {
		if IsControlledSubstance(o.Lines[i].Product) {
			return true
		}
	}
	return false
}

// ControlledLines returns the lines holding controlled substances, in order.
func ControlledLines(o *Order) []*Line {
	var lines []*Line
	for i := range o.Lines {
		if IsControlledSubstance(o.Lines[i].Product) {
			lines = append(lines, &o.Lines[i])
		}
	}
	return lines
}
