package model

// Exercise is one entry of the workout catalog. Zone names the equipment
// zone the exercise is performed in, which is how recommendations pick up
// a live wait estimate.
type Exercise struct {
	Name            string `gorm:"primaryKey;size:128" json:"exercise_name"`
	PrimaryMuscle   string `gorm:"size:64" json:"primary_muscle"`
	Zone            string `gorm:"index;size:64;not null" json:"zone"`
	AvgDuration     int    `json:"avg_duration"`
	RecommendedSets int    `json:"recommended_sets"`
	RecommendedReps int    `json:"recommended_reps"`
}
