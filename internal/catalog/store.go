package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"advisor/internal/logging"
)

// Store persists the course catalog as a JSON document on disk. A missing
// file is seeded with sample data so a fresh checkout works end to end.
type Store struct {
	path string
}

// NewStore creates a Store for the given JSON file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the catalog from disk. If the file does not exist it is
// created with the sample catalog first.
func (s *Store) Load() (*Catalog, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		logging.Catalog("courses file %s missing, seeding sample catalog", s.path)
		if err := s.Save(SampleCourses()); err != nil {
			return nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read courses file: %w", err)
	}

	var courses []Course
	if err := json.Unmarshal(data, &courses); err != nil {
		return nil, fmt.Errorf("failed to parse courses file %s: %w", s.path, err)
	}

	cat, err := New(courses)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog in %s: %w", s.path, err)
	}

	logging.Catalog("loaded %d courses from %s", cat.Len(), s.path)
	return cat, nil
}

// Save writes the given courses to disk, creating parent directories as
// needed. The write goes through a temp file and rename so readers never
// observe a half-written catalog.
func (s *Store) Save(courses []Course) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(courses, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal courses: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write courses file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace courses file: %w", err)
	}

	logging.Catalog("saved %d courses to %s", len(courses), s.path)
	return nil
}

// SampleCourses returns the seed catalog used when no courses file exists.
func SampleCourses() []Course {
	return []Course{
		{
			ID:            "CS101",
			Title:         "Introduction to Computer Science",
			Description:   "Fundamental concepts of programming and computer science. Introduction to problem-solving, algorithm design, and programming in Python.",
			Credits:       3,
			Difficulty:    2,
			Category:      "Core Requirements",
			Semester:      "Fall/Spring",
			Prerequisites: "None",
			Instructor:    "Dr. Smith",
			Schedule:      "MWF 10:00-11:00 AM",
		},
		{
			ID:            "CS201",
			Title:         "Data Structures and Algorithms",
			Description:   "Advanced data structures including arrays, linked lists, stacks, queues, trees, and graphs. Algorithm design and analysis.",
			Credits:       4,
			Difficulty:    4,
			Category:      "Core Requirements",
			Semester:      "Fall/Spring",
			Prerequisites: "CS101",
			Instructor:    "Dr. Johnson",
			Schedule:      "TTh 2:00-3:30 PM",
		},
		{
			ID:            "CS301",
			Title:         "Machine Learning",
			Description:   "Introduction to machine learning algorithms, supervised and unsupervised learning, neural networks, and deep learning applications.",
			Credits:       3,
			Difficulty:    4,
			Category:      "Major Electives",
			Semester:      "Fall/Spring",
			Prerequisites: "CS201, MATH201",
			Instructor:    "Dr. Chen",
			Schedule:      "MWF 1:00-2:00 PM",
		},
		{
			ID:            "CS302",
			Title:         "Web Development",
			Description:   "Full-stack web development using modern frameworks. HTML, CSS, JavaScript, React, Node.js, and database integration.",
			Credits:       3,
			Difficulty:    3,
			Category:      "Major Electives",
			Semester:      "Fall/Spring",
			Prerequisites: "CS101",
			Instructor:    "Prof. Garcia",
			Schedule:      "TTh 11:00-12:30 PM",
		},
		{
			ID:            "CS303",
			Title:         "Database Systems",
			Description:   "Database design, SQL, relational algebra, normalization, transaction processing, and distributed databases.",
			Credits:       3,
			Difficulty:    3,
			Category:      "Major Electives",
			Semester:      "Fall/Spring",
			Prerequisites: "CS201",
			Instructor:    "Dr. Williams",
			Schedule:      "MWF 3:00-4:00 PM",
		},
		{
			ID:            "MATH201",
			Title:         "Calculus I",
			Description:   "Differential calculus, limits, derivatives, applications to optimization, and introduction to integral calculus.",
			Credits:       4,
			Difficulty:    3,
			Category:      "Math/Science",
			Semester:      "Fall/Spring",
			Prerequisites: "Pre-calculus or placement test",
			Instructor:    "Prof. Davis",
			Schedule:      "MWF 9:00-10:00 AM, Th 9:00-10:00 AM",
		},
		{
			ID:            "MATH202",
			Title:         "Statistics",
			Description:   "Probability theory, statistical inference, hypothesis testing, regression analysis, and data interpretation.",
			Credits:       3,
			Difficulty:    3,
			Category:      "Math/Science",
			Semester:      "Fall/Spring",
			Prerequisites: "MATH201",
			Instructor:    "Dr. Brown",
			Schedule:      "TTh 10:00-11:30 AM",
		},
		{
			ID:            "ENG102",
			Title:         "English Composition",
			Description:   "Academic writing skills, critical thinking, research methods, and effective communication in various contexts.",
			Credits:       3,
			Difficulty:    2,
			Category:      "General Education",
			Semester:      "Fall/Spring",
			Prerequisites: "None",
			Instructor:    "Prof. Taylor",
			Schedule:      "MWF 11:00-12:00 PM",
		},
		{
			ID:            "PHIL101",
			Title:         "Introduction to Philosophy",
			Description:   "Classical and contemporary philosophical problems, logic, ethics, metaphysics, and critical reasoning skills.",
			Credits:       3,
			Difficulty:    2,
			Category:      "Humanities",
			Semester:      "Fall/Spring",
			Prerequisites: "None",
			Instructor:    "Dr. Wilson",
			Schedule:      "TTh 1:00-2:30 PM",
		},
		{
			ID:            "HIST201",
			Title:         "World History",
			Description:   "Survey of world civilizations, cultural developments, historical analysis methods, and global perspectives.",
			Credits:       3,
			Difficulty:    2,
			Category:      "Humanities",
			Semester:      "Fall/Spring",
			Prerequisites: "None",
			Instructor:    "Prof. Martinez",
			Schedule:      "MWF 2:00-3:00 PM",
		},
	}
}
