package state

import "fmt"

func executorKey(ns, id string) string   { return fmt.Sprintf("/%s/executors/%s", ns, id) }
func heartbeatKey(ns, id string) string  { return fmt.Sprintf("/%s/heartbeats/%s", ns, id) }
func slotsKey(ns, id string) string      { return fmt.Sprintf("/%s/slots/%s", ns, id) }
func jobKey(ns, jobID string) string     { return fmt.Sprintf("/%s/jobs/%s", ns, jobID) }
func stageKey(ns, jobID string, stageID int) string {
	return fmt.Sprintf("/%s/stages/%s/%d", ns, jobID, stageID)
}
func taskKey(ns, jobID string, stageID, partitionID int) string {
	return fmt.Sprintf("/%s/tasks/%s/%d/%d", ns, jobID, stageID, partitionID)
}
func tasksForJobPrefix(ns, jobID string) string {
	return fmt.Sprintf("/%s/tasks/%s/", ns, jobID)
}
func tasksPrefix(ns string) string {
	return fmt.Sprintf("/%s/tasks/", ns)
}
func executorsPrefix(ns string) string {
	return fmt.Sprintf("/%s/executors/", ns)
}
func jobsPrefix(ns string) string {
	return fmt.Sprintf("/%s/jobs/", ns)
}
func assignLockKey(ns, executorID, jobID string) string {
	return fmt.Sprintf("/%s/locks/assign/%s/%s", ns, executorID, jobID)
}
