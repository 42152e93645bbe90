package api

// NextState picks the successor of a Choice state for the given status.
// Rules are tried in declaration order and the first exact match wins;
// when nothing matches the Default is returned.
func NextState(status Status, choice ChoiceState) string {
	for _, rule := range choice.Rules {
		if rule.StatusEquals == status {
			return rule.Next
		}
	}
	return choice.Default
}

// covers reports whether the choice routes every valid status somewhere.
func (c ChoiceState) covers() bool {
	for _, s := range Statuses {
		if NextState(s, c) == "" {
			return false
		}
	}
	return true
}
