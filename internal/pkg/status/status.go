// Package status projects the pipeline's integer request status onto the
// badge shown in the dashboard.
package status

// Status is the closed set of request states.
type Status int

const (
	Unknown   Status = 0
	Searching Status = 1
	Saving    Status = 2
	Analyzing Status = 3
	Complete  Status = 4
	Empty     Status = 5
)

// Badge colors understood by the front end.
const (
	ColorBlue   = "blue"
	ColorOrange = "orange"
	ColorPurple = "purple"
	ColorGreen  = "green"
	ColorGray   = "gray"
)

type Badge struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// FromCode maps any stored code to a Status; unrecognised codes become Unknown.
func FromCode(code int) Status {
	switch Status(code) {
	case Searching, Saving, Analyzing, Complete, Empty:
		return Status(code)
	default:
		return Unknown
	}
}

func (s Status) Badge() Badge {
	switch s {
	case Searching:
		return Badge{Label: "Buscando Conteúdos", Color: ColorBlue}
	case Saving:
		return Badge{Label: "Salvando Conteúdos", Color: ColorOrange}
	case Analyzing:
		return Badge{Label: "IA Analisando", Color: ColorPurple}
	case Complete:
		return Badge{Label: "Analise Concluida", Color: ColorGreen}
	case Empty:
		return Badge{Label: "Nenhum Conteúdo", Color: ColorGray}
	default:
		return Badge{Label: "Desconhecido", Color: ColorGray}
	}
}

// Terminal reports whether the pipeline is done with the request.
func (s Status) Terminal() bool {
	return s == Complete || s == Empty
}

// Pending reports whether the request is still being worked on.
func (s Status) Pending() bool {
	return s == Searching || s == Saving || s == Analyzing
}

// BadgeFor is FromCode(code).Badge().
func BadgeFor(code int) Badge {
	return FromCode(code).Badge()
}
