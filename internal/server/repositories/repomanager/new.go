package repomanager

import "fmt"

// New builds the manager for driver. dataDir is used by the file driver and
// dsn by the postgres driver.
func New(driver, dataDir, dsn string) (RepositoryManager, error) {
	switch driver {
	case DriverFile, "":
		return NewFileRepositoryManager(dataDir), nil
	case DriverPostgres:
		return NewPostgresRepositoryManager(dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
