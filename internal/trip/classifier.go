package trip

// Classifier labels a day given its trip and chronological index. It must be
// free of side effects; Normalize calls it once per unlabelled day.
type Classifier interface {
	Classify(day Day, t Trip, index int) Label
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(day Day, t Trip, index int) Label

// Classify calls f.
func (f ClassifierFunc) Classify(day Day, t Trip, index int) Label {
	return f(day, t, index)
}

// PositionalClassifier labels days from their position and destination alone:
// the first day is the arrival, the last the departure, days without a
// destination are rest days and everything else is a destination day.
type PositionalClassifier struct {
	// DayCount is the number of days in the canonical list.
	DayCount int
}

// Classify implements Classifier.
func (p PositionalClassifier) Classify(day Day, _ Trip, index int) Label {
	switch {
	case index == 0:
		return LabelArrival
	case p.DayCount > 1 && index == p.DayCount-1:
		return LabelDeparture
	case !day.HasDestination():
		return LabelRest
	default:
		return LabelDestinationDay
	}
}
