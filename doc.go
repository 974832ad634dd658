// Package nebula is the FTP-family file connector of a batch
// synchronization platform. It reads files from, or plans writes to, a
// remote file endpoint: an FTP server, an S3 or GCS bucket, or a local
// directory.
//
// # Architecture
//
// A job goes through four steps, each owned by one package:
//
// 1. Column schema parsing (pkg/schema): the textual or JSON column
// specification becomes an immutable TableSchema. Malformed entries fail
// with a schema error naming the offending entry.
//
// 2. Bounded enumeration (pkg/remote): every configured root is traversed
// with an explicit work list down to max_traversal_level. The root is depth
// 0; files deeper than the limit are pruned, never an error. The result is
// deduplicated and sorted so identical remote state yields identical plans.
//
// 3. Partitioning (pkg/partition): one immutable SubTaskContext per file
// for readers, one WritePlan per table mapping for writers. All contexts of
// a job share the same schema and settings.
//
// 4. Descriptors (pkg/connector/ftp): the reader and writer validate their
// configuration, collecting the first problem of every field, and only then
// hand out sub-tasks.
//
// # Transports
//
// Transports implement remote.FileLister and remote.FileWriter:
//
//   - ftp: github.com/jlaffaye/ftp, one control connection per transport
//   - s3: aws-sdk-go-v2, delimiter listings and multipart uploads
//   - gcs: cloud.google.com/go/storage
//   - local and memory: github.com/spf13/afero
//
// pkg/remote/transport opens the transport named by a job file and wraps it
// with retries and a rate limit taken from the reliability section.
//
// # Quick Start
//
//	nebula-ftp validate --config job.yaml
//	nebula-ftp plan --config job.yaml -o json
//	nebula-ftp check --config job.yaml --workers 8
//
// A minimal job file:
//
//	name: orders
//	server:
//	  kind: ftp
//	  host: ftp.example.com
//	  username: ${FTP_USER}
//	  password: ${FTP_PASSWORD}
//	reader:
//	  path: /export/orders
//	  column: "0:id:long,1:amount:double,2:created:date:yyyy-MM-dd"
//	  max_traversal_level: 2
//
// # Observability
//
// Logging uses zap (pkg/logger) with job, connector and sub-task ids taken
// from the context. Enumerations, validations and emitted sub-tasks are
// counted in Prometheus collectors (pkg/metrics), and validation,
// enumeration and sub-task execution are traced with OpenTelemetry
// (pkg/observability).
package nebula
