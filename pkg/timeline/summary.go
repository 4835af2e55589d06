package timeline

// Summary condenses an evaluation for presentation
type Summary struct {
	Pending int
	Active  []int
	Done    int
	// NextPending is the pending step that starts soonest, or -1
	NextPending int
}

// Finished reports whether every step is done. An empty plan is finished.
func (s Summary) Finished() bool {
	return s.Pending == 0 && len(s.Active) == 0
}

// Summarize counts statuses and finds the active and next pending steps
func Summarize(statuses []StepStatus) Summary {
	sum := Summary{NextPending: -1}
	for _, st := range statuses {
		switch st.Status {
		case StatusPending:
			sum.Pending++
			if sum.NextPending < 0 || st.RemainingSec < statuses[sum.NextPending].RemainingSec {
				sum.NextPending = st.Index
			}
		case StatusActive:
			sum.Active = append(sum.Active, st.Index)
		case StatusDone:
			sum.Done++
		}
	}
	return sum
}
