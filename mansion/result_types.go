package mansion

// InstallResult is sent in json mode once an install is over
//
// For command `install`
type InstallResult struct {
	Name           string   `json:"name"`
	ID             string   `json:"id,omitempty"`
	Outcome        string   `json:"outcome"`
	Message        string   `json:"message"`
	Mode           string   `json:"mode,omitempty"`
	Target         string   `json:"target"`
	Features       []string `json:"features"`
	InstalledFiles []string `json:"installedFiles"`
	CreatedDirs    []string `json:"createdDirs"`
	ManifestPath   string   `json:"manifestPath,omitempty"`
	Error          string   `json:"error,omitempty"`
	ErrorCode      int64    `json:"errorCode,omitempty"`
}

// UninstallResult is sent in json mode once an uninstall is over
//
// For command `uninstall`
type UninstallResult struct {
	Name         string   `json:"name"`
	Outcome      string   `json:"outcome"`
	Message      string   `json:"message"`
	ManifestPath string   `json:"manifestPath"`
	Found        int      `json:"found"`
	Removed      int      `json:"removed"`
	Failed       []string `json:"failed"`
}

// PlanResult describes what an install would do, without doing it
//
// For command `plan`
type PlanResult struct {
	Platform     string           `json:"platform"`
	Target       string           `json:"target"`
	Features     []string         `json:"features"`
	Files        []PlannedFile    `json:"files"`
	TotalSize    int64            `json:"totalSize"`
	Dependencies []PlannedCommand `json:"dependencies"`
	ManifestPath string           `json:"manifestPath,omitempty"`
}

type PlannedFile struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Size        int64  `json:"size"`
}

type PlannedCommand struct {
	Name      string   `json:"name"`
	Stage     string   `json:"stage"`
	Command   []string `json:"command"`
	ExitCodes []int    `json:"exitCodes,omitempty"`
}
