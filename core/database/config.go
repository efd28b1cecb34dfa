package database

const (
	// DriverMySQL selects the MySQL dialector.
	DriverMySQL = "mysql"
	// DriverSQLite selects the SQLite dialector. Name is the file path or ":memory:".
	DriverSQLite = "sqlite"
)

// Config holds configuration for one database connection.
// The same shape is used for the legacy source and the local target.
type Config struct {
	// Driver is the database driver (mysql, sqlite).
	Driver string `mapstructure:"driver" default:"mysql"`
	// Host is the database host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port.
	Port int `mapstructure:"port" default:"3306"`
	// User is the database user.
	User string `mapstructure:"user" default:"root"`
	// Password is the database password.
	Password string `mapstructure:"password" default:""`
	// Name is the database name.
	Name string `mapstructure:"name" default:"legacy"`
	// TimeoutSeconds bounds connection setup and each read/write.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// MaxOpenConns caps the pool. Size it at least to sync.max_parallel.
	MaxOpenConns int `mapstructure:"max_open_conns" default:"20"`
	// Location is the zone DATETIME columns are interpreted in (mysql only).
	Location string `mapstructure:"location" default:"Local"`
}
