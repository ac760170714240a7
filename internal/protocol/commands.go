package protocol

import "time"

// Host commands (m.Command)
const (
	CmdIsServerRunning     = "is_server_running"
	CmdGetDataFolderList   = "get_data_folder_list"
	CmdGetServerVersion    = "get_server_version"
	CmdGetDescription      = "get_description_server"
	CmdOpenFolder          = "open_folder"
	CmdOpenServer          = "open_server"
	CmdStopServer          = "stop_server"
	CmdCreateNewDataFolder = "create_new_data_folder"
	CmdGetPaperVersions    = "get_paper_versions"
	CmdWriteServerProps    = "write_server_properties"
	CmdGetActionHistory    = "get_action_history"
)

// FolderTarget is the argument shape shared by every per-instance command.
type FolderTarget struct {
	FolderName string `json:"folderName"`
}

// ServerProperties carries the creation dialog fields to the host.
type ServerProperties struct {
	FolderName      string `json:"folderName"`
	Description     string `json:"description"`
	Version         string `json:"version"`
	MaxPlayers      int    `json:"maxPlayers"`
	Difficulty      string `json:"difficulty"`
	Whitelist       bool   `json:"whitelist"`
	Cracked         bool   `json:"cracked"`
	AllowFlight     bool   `json:"allowFlight"`
	ForceGamemode   bool   `json:"forceGamemode"`
	SpawnProtection int    `json:"spawnProtection"`
}

type HistoryRequest struct {
	FolderName string `json:"folderName"`
	Limit      int    `json:"limit,omitempty"`
}

type HistoryEntry struct {
	ID        string    `json:"id"`
	Folder    string    `json:"folder"`
	Action    string    `json:"action"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
