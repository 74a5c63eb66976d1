// Package hash provides the CRC32-Castagnoli (CRC32C) checksum shared by the
// backup blob format and S3 upload integrity headers.
//
//	checksum := hash.CRC32C(data)
package hash
