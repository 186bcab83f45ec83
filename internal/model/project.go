package model

// Project is a billable project users record time against. The manager owns
// the project; Users is the set of assigned user IDs.
type Project struct {
	ID          int    `json:"id"`
	Name        string `json:"nom"`
	Description string `json:"description,omitempty"`
	ManagerID   int    `json:"manager"`
	Users       []int  `json:"users,omitempty"`
}
