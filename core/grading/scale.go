// Package grading holds the pure academic rules: the letter/point scale and credit accrual.
package grading

// Grade is a letter grade with its GPA point value.
type Grade struct {
	Letter string  `json:"letter"`
	Point  float64 `json:"point"`
}

type bucket struct {
	min float64
	Grade
}

// scale is ordered from the highest threshold down.
var scale = []bucket{
	{97, Grade{"A+", 4.0}},
	{93, Grade{"A", 4.0}},
	{90, Grade{"A-", 3.7}},
	{87, Grade{"B+", 3.3}},
	{83, Grade{"B", 3.0}},
	{80, Grade{"B-", 2.7}},
	{77, Grade{"C+", 2.3}},
	{73, Grade{"C", 2.0}},
	{70, Grade{"C-", 1.7}},
	{67, Grade{"D+", 1.3}},
	{65, Grade{"D", 1.0}},
}

// Failing is returned for every percentage below the lowest bucket.
var Failing = Grade{Letter: "E/F", Point: 0}

// ScoreToGrade maps a percentage to its letter grade and GPA point.
func ScoreToGrade(pct float64) Grade {
	for _, b := range scale {
		if pct >= b.min {
			return b.Grade
		}
	}
	return Failing
}

// PercentageToGPA returns only the GPA point of ScoreToGrade.
func PercentageToGPA(pct float64) float64 {
	return ScoreToGrade(pct).Point
}
