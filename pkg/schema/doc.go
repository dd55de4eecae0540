// Package schema validates the untyped "data" bag of a flow node before it
// is decoded into its typed record.
//
// A Schema maps field names to types. Fields are required unless wrapped
// with Optional:
//
//	s := schema.Schema{
//	    "latitude":  schema.Number(),
//	    "longitude": schema.Number(),
//	    "title":     schema.Optional(schema.String()),
//	}
//
//	if err := schema.Validate(s, data); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        // report e
//	    }
//	}
//
// Types accept the loose encodings an editor produces: numbers may arrive as
// numeric strings and booleans as "true"/"false". ForNode returns the schema
// of each node type.
package schema
