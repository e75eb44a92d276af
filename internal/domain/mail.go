package domain

// 邮件类型
const (
	MailTypeCreateUser     = "create_user"
	MailTypeRosterFinished = "roster_finished"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type RosterFinishedMailData struct {
	ProblemName    string  `json:"problemName"`
	RunID          string  `json:"runID"`
	Status         string  `json:"status"`
	Fitness        float64 `json:"fitness"`
	HardViolations int     `json:"hardViolations"`
	Feasible       bool    `json:"feasible"`
	Generations    int     `json:"generations"`
	Error          string  `json:"error"`
}
