// internal/screen/screen.go
package screen

import "strings"

// Markers are the literal substrings the remote bot uses on each screen.
// They are tied to one bot's wording and are loaded from configuration.
type Markers struct {
	Welcome   string `yaml:"welcome"`
	TaskPanel string `yaml:"task_panel"`
	TaskList  string `yaml:"task_list"`
	Bullet    string `yaml:"bullet"`
}

// Labels are the intended actions matched fuzzily against button text.
type Labels struct {
	MainMenu string `yaml:"main_menu"`
	GoToTask string `yaml:"go_to_task"`
	Tasks    string `yaml:"tasks"`
}

// DefaultMarkers matches the vankedisi bot.
func DefaultMarkers() Markers {
	return Markers{
		Welcome:   "Welcome to the vankedisi Adventure!",
		TaskPanel: "Task Panel",
		TaskList:  "Active Tasks",
		Bullet:    "🔹 [",
	}
}

func DefaultLabels() Labels {
	return Labels{
		MainMenu: "main menu",
		GoToTask: "go to task",
		Tasks:    "tasks",
	}
}

// Signature classifies one message by the markers found in its text.
type Signature uint8

const (
	Unrecognized Signature = iota
	Welcome
	TaskPanel
	TaskList
)

func (s Signature) String() string {
	switch s {
	case Welcome:
		return "welcome"
	case TaskPanel:
		return "task_panel"
	case TaskList:
		return "task_list"
	default:
		return "unrecognized"
	}
}

// Classify returns the signature of text. The task list wins over the
// panel marker because the list screen usually repeats the panel title.
func (m Markers) Classify(text string) Signature {
	switch {
	case contains(text, m.TaskList):
		return TaskList
	case contains(text, m.TaskPanel):
		return TaskPanel
	case contains(text, m.Welcome):
		return Welcome
	default:
		return Unrecognized
	}
}

// CountTasks counts list entries on a task list screen.
// Any text without the task list marker counts as zero.
func (m Markers) CountTasks(text string) int {
	if !contains(text, m.TaskList) || m.Bullet == "" {
		return 0
	}
	return strings.Count(text, m.Bullet)
}

// contains never matches an empty marker.
func contains(text, marker string) bool {
	return marker != "" && strings.Contains(text, marker)
}

// Shows reports whether text carries the marker of s.
// Unlike Classify it does not rank screens against each other.
func (m Markers) Shows(text string, s Signature) bool {
	switch s {
	case Welcome:
		return contains(text, m.Welcome)
	case TaskPanel:
		return contains(text, m.TaskPanel)
	case TaskList:
		return contains(text, m.TaskList)
	default:
		return false
	}
}
