// Package containers starts throwaway Docker services for integration
// tests using testcontainers-go: a MySQL 8 server for the GORM repository
// and an Eclipse Mosquitto broker for the event publisher.
//
//nolint:misspell // Mosquitto is the official Eclipse project name
//
// Packages share one container per test binary through TestMain:
//
//	var db *containers.MySQLContainer
//
//	func TestMain(m *testing.M) {
//	    var err error
//	    db, err = containers.NewMySQLContainer(context.Background(), nil)
//	    if err != nil {
//	        panic(err)
//	    }
//	    code := m.Run()
//	    _ = db.Terminate(context.Background())
//	    os.Exit(code)
//	}
//
// Everything here is behind the "integration" build tag:
//
//	go test -tags=integration ./...
package containers
