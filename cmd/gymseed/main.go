// Command gymseed provisions a fresh database with the standard zone
// layout and workout catalog. Run it once against an empty database; it
// skips rows that already exist.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gorm.io/gorm/clause"

	"gym-occupancy-backend/config"
	"gym-occupancy-backend/internal/db"
	"gym-occupancy-backend/internal/model"
)

var zoneLayout = map[string]int{
	"bench":            12,
	"chest_machine":    8,
	"back_machine":     8,
	"squat_rack":       12,
	"shoulder_machine": 5,
	"bicep_machine":    5,
	"tricep_machine":   5,
	"leg_machine":      8,
	"quad_machine":     8,
	"glute_machine":    8,
	"dumbbell_set":     2,
	"cable_station":    6,
	"treadmill":        20,
	"stair_master":     20,
}

type seedExercise struct {
	name   string
	muscle string
	zone   string
	mins   int
	sets   int
	reps   int
}

var exerciseCatalog = []seedExercise{
	{"Flat Barbell Bench Press", "Chest", "bench", 15, 4, 8},
	{"Incline Dumbbell Press", "Chest", "bench", 12, 3, 10},
	{"Cable Fly", "Chest", "chest_machine", 10, 3, 12},
	{"Chest Press", "Chest", "chest_machine", 12, 3, 10},
	{"Lat Pulldown", "Back", "back_machine", 12, 4, 10},
	{"Seated Row", "Back", "back_machine", 12, 3, 10},
	{"T-Bar Row", "Back", "squat_rack", 14, 4, 8},
	{"Pull-Up", "Back", "bench", 10, 3, 8},
	{"Shoulder Press", "Shoulders", "shoulder_machine", 12, 4, 8},
	{"Lateral Raise", "Shoulders", "dumbbell_set", 10, 3, 12},
	{"Rear Delt Fly", "Shoulders", "shoulder_machine", 10, 3, 12},
	{"Barbell Curl", "Biceps", "bicep_machine", 10, 3, 10},
	{"Preacher Curl", "Biceps", "bicep_machine", 10, 3, 10},
	{"Cable Curl", "Biceps", "cable_station", 10, 3, 12},
	{"Hammer Curl", "Biceps", "dumbbell_set", 10, 3, 10},
	{"Rope Pushdown", "Triceps", "tricep_machine", 10, 3, 12},
	{"Skull Crusher", "Triceps", "bench", 12, 3, 10},
	{"Dips", "Triceps", "bench", 10, 3, 8},
	{"Leg Press", "Legs", "leg_machine", 15, 4, 10},
	{"Leg Curl", "Legs", "leg_machine", 12, 3, 12},
	{"Hack Squat", "Quads", "quad_machine", 15, 4, 8},
	{"Leg Extension", "Quads", "quad_machine", 12, 3, 12},
	{"Split Squat", "Quads", "squat_rack", 14, 3, 10},
	{"Hip Thrust", "Glutes", "glute_machine", 14, 4, 10},
	{"Glute Kickback", "Glutes", "glute_machine", 10, 3, 12},
	{"Bulgarian Split Squat", "Glutes", "bench", 14, 3, 10},
	{"Calf Raise", "Calves", "leg_machine", 8, 4, 15},
	{"Treadmill Run", "Cardio", "treadmill", 25, 1, 1},
	{"Stair Climb", "Cardio", "stair_master", 20, 1, 1},
	{"Incline Walk", "Cardio", "treadmill", 20, 1, 1},
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to CONFIG_PATH or ./config/config.yaml)")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./config/config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", path, err)
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	var units []model.Equipment
	for zone, count := range zoneLayout {
		for i := 1; i <= count; i++ {
			id := fmt.Sprintf("%s_%02d", zone, i)
			units = append(units, model.Equipment{
				ID:     id,
				Name:   id,
				Zone:   zone,
				Status: model.StatusAvailable,
			})
		}
	}
	if err := gormDB.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&units).Error; err != nil {
		log.Fatalf("failed to seed equipment: %v", err)
	}
	log.Printf("seeded %d equipment units across %d zones", len(units), len(zoneLayout))

	var exercises []model.Exercise
	for _, e := range exerciseCatalog {
		exercises = append(exercises, model.Exercise{
			Name:            e.name,
			PrimaryMuscle:   e.muscle,
			Zone:            e.zone,
			AvgDuration:     e.mins,
			RecommendedSets: e.sets,
			RecommendedReps: e.reps,
		})
	}
	if err := gormDB.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&exercises).Error; err != nil {
		log.Fatalf("failed to seed exercises: %v", err)
	}
	log.Printf("seeded %d exercises", len(exercises))
}
