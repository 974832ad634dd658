// Package connector groups the file connector framework of nebula-ftp.
//
// # Architecture Overview
//
// The connector package is organized into several sub-packages:
//
//   - core: Defines the descriptor interfaces (Reader, Writer) and the
//     validation lifecycle every descriptor goes through:
//     UNVALIDATED, VALIDATING, then VALID or INVALID.
//
//   - registry: Maps a connector tag to its reader and writer factories.
//     Connector packages register themselves from init, so importing a
//     connector is enough to make it available.
//
//   - ftp: The FTP file connector. Its reader parses the column
//     specification, enumerates the remote roots up to a bounded depth and
//     emits one read sub-task per file. Its writer plans one write sub-task
//     per table mapping, optionally preceded by a manifest write.
//
// # Usage
//
// Descriptors are created through the registry over an open transport
// (see pkg/remote/transport), validated, and then asked for sub-tasks:
//
//	fs, err := transport.Open(ctx, cfg, log)
//	reader, err := registry.CreateReader("ftp", cfg, fs)
//	if err := reader.Validate(ctx); err != nil {
//		// *errors.FieldErrors lists the first problem of every field
//	}
//	it, err := reader.SubTasks(ctx, core.AllTables)
//	for task, ok := it.Next(); ok; task, ok = it.Next() {
//		// hand task to a runner
//	}
//
// Sub-tasks are immutable and share one schema and one settings value, so
// they can be handed to concurrent workers (see internal/runner) without
// copying.
package connector
