// Package model holds the typed view of the metadata a Django REST admin
// backend publishes about its models: the admin registry returned by
// /api/admin/, the per-model field configuration, and the items themselves.
//
// Raw backend JSON enters through ParseAdminConfig and ParseModelConfig, which
// keep field declaration order, resolve a Widget for every field and reject
// descriptors that break the relation or translation rules with a
// *SchemaError listing every issue. Downstream packages (form, listing,
// renderers) only ever see validated values.
package model
