package config

type WorkerKeyStruct struct {
	PersistReportsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistReportsQueue: "persist_reports_queue",
}
