package predict

import (
	"github.com/mchmarny/predictr/pkg/category"
)

const (
	AppInsurance = "insurance"
	AppExam      = "exam"
)

// NOTE: the fallback maps assume Male=1, Female=0 and Yes=1, No=0, matching
// how the insurance training data was labeled.
var (
	genderFallback = category.FallbackMap{"Male": 1, "Female": 0}
	yesNoFallback  = category.FallbackMap{"Yes": 1, "No": 0}

	insuranceProfile = Profile{
		Name:        AppInsurance,
		Title:       "Health Insurance Payment Prediction",
		Description: "Enter your health and lifestyle details below to estimate your expected insurance payment amount.",
		SubmitLabel: "Predict Payment",
		Fields: []Field{
			{Name: "age", Label: "Age", Kind: FieldNumeric, Integer: true, Min: 0, Max: 100, Default: 30, Step: 1},
			{Name: "bmi", Label: "BMI", Kind: FieldNumeric, Min: 10, Max: 60, Default: 25, Step: 0.1},
			{Name: "children", Label: "Number of Children", Kind: FieldNumeric, Integer: true, Min: 0, Max: 8, Default: 0, Step: 1},
			{Name: "bloodpressure", Label: "Blood Pressure", Kind: FieldNumeric, Min: 60, Max: 200, Default: 120, Step: 1},
			{Name: "gender", Label: "Gender", Kind: FieldCategorical, Options: []string{"Male", "Female"}, Encoder: "gender", Fallback: genderFallback},
			{Name: "diabetic", Label: "Diabetic", Kind: FieldCategorical, Options: []string{"Yes", "No"}, Encoder: "diabetic", Fallback: yesNoFallback},
			{Name: "smoker", Label: "Smoker", Kind: FieldCategorical, Options: []string{"Yes", "No"}, Encoder: "smoker", Fallback: yesNoFallback},
		},
		Scaled:   []string{"age", "bmi", "bloodpressure", "children"},
		Features: []string{"age", "gender", "bmi", "bloodpressure", "diabetic", "children", "smoker"},
		Output: Output{
			Kind:   OutputCurrency,
			Label:  "Estimated Insurance Payment Amount",
			Prefix: "Ksh.",
		},
	}

	examProfile = Profile{
		Name:        AppExam,
		Title:       "Student Exam Score Predictor",
		Description: "Estimate an exam score from study habits, attendance and wellbeing.",
		SubmitLabel: "Predict Exam Score",
		Fields: []Field{
			{Name: "study_hours", Label: "Study Hours Per Day", Kind: FieldNumeric, Min: 0, Max: 24, Default: 8, Step: 0.1},
			{Name: "attendance", Label: "Attendance Percentage", Kind: FieldNumeric, Min: 0, Max: 100, Default: 80, Step: 0.1},
			{Name: "sleep_hours", Label: "Sleep Hours Per Night", Kind: FieldNumeric, Min: 0, Max: 24, Default: 8, Step: 0.1},
			{Name: "mental_health", Label: "Mental Health Rating (1-10)", Kind: FieldNumeric, Integer: true, Min: 0, Max: 10, Default: 9, Step: 1},
			{Name: "part_time_job", Label: "Part-Time Job", Kind: FieldCategorical, Options: []string{"NO", "YES"}, Classes: []string{"NO", "YES"}},
		},
		Features: []string{"mental_health", "sleep_hours", "part_time_job", "attendance", "study_hours"},
		Output: Output{
			Kind:  OutputScore,
			Label: "Predicted Exam Score",
			Min:   0,
			Max:   100,
		},
	}
)

// Profiles returns the built-in apps in display order.
func Profiles() []Profile {
	return []Profile{insuranceProfile, examProfile}
}

// GetProfile returns the built-in app by name.
func GetProfile(name string) (Profile, bool) {
	for _, p := range Profiles() {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}
