// Command docflow bundles the file utilities of a document digitization
// workflow: converting page image archives to PDF, cleaning ALTO descriptors,
// naming directories after IIIF manifests, and renaming image/ALTO pairs.
//
// Configuration is read from docflow.toml (or --config), an optional
// docflow.<DOCFLOW_ENV>.toml overlay, and DOCFLOW_* environment variables.
package main
