package extract

// DataRepository persists completed datasets outside the task store.
// Persistence is best-effort: a failed save is logged by the caller, the
// task itself keeps its in-memory result either way.
type DataRepository interface {
	Save(taskID string, ds *Dataset) error
}

type EmptyDataRepository struct{}

func (EmptyDataRepository) Save(taskID string, ds *Dataset) error {
	return nil
}
