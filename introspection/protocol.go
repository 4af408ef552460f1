package introspection

import "fmt"

// KV bucket names
const (
	// ManagersBucket holds one key per live manager
	ManagersBucket = "plotstream_managers"
	// CatalogBucket holds one key per manager; the value is its catalog as a
	// JSON array of signal identifiers
	CatalogBucket = "plotstream_catalog"
)

// Subject layout
const (
	subjectPrefix = "introspection"
)

func newFilterSubject(managerID string) string {
	return fmt.Sprintf("%s.%s.filter.new", subjectPrefix, managerID)
}

func updateFilterSubject(managerID string) string {
	return fmt.Sprintf("%s.%s.filter.update", subjectPrefix, managerID)
}

func removeFilterSubject(managerID string) string {
	return fmt.Sprintf("%s.%s.filter.remove", subjectPrefix, managerID)
}

func notifySubject(managerID, filterID string) string {
	return fmt.Sprintf("%s.%s.update.%s", subjectPrefix, managerID, filterID)
}

// managerRecord is the value stored under a manager's key in ManagersBucket
type managerRecord struct {
	ID         string `json:"id"`
	Registered string `json:"registered"` // RFC3339
}

// newFilterRequest asks a manager to create a filter
type newFilterRequest struct {
	IDs []string `json:"ids"`
}

// newFilterReply carries the created filter's coordinates
type newFilterReply struct {
	OK            bool   `json:"ok"`
	Error         string `json:"error,omitempty"`
	FilterID      string `json:"filter_id,omitempty"`
	NotifySubject string `json:"notify_subject,omitempty"`
}

// updateFilterRequest replaces a filter's membership
type updateFilterRequest struct {
	FilterID string   `json:"filter_id"`
	IDs      []string `json:"ids"`
}

// removeFilterRequest deletes a filter
type removeFilterRequest struct {
	FilterID string `json:"filter_id"`
}

// statusReply acknowledges update/remove requests
type statusReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
