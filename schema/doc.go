// Package schema provides the explicit descriptors of the types fixgen
// populates.
//
// A Schema lists the generated fields of a struct type. Each Field carries
// its name, Go type, declared rules and a getter/setter pair, so the engine
// never inspects struct layout while generating.
//
// # Declaring a Schema
//
// With typed accessors:
//
//	var UserSchema = schema.MustFor[User](
//	    schema.Bind("name", func(u *User) *string { return &u.Name }, rule.String(3, 12)),
//	    schema.Bind("age", func(u *User) *int { return &u.Age },
//	        rule.Int(18, 65),
//	        rule.Int(66, 99).Group("senior"),
//	    ),
//	)
//
// From struct tags:
//
//	type User struct {
//	    Name string `fixgen:"string,min_len=3,max_len=12"`
//	    Age  int    `fixgen:"int,min=18,max=65;int,min=66,max=99,group=senior"`
//	}
//
//	s, err := schema.FromStruct(reflect.TypeFor[User]())
//
// Tagged field names are derived from the Go name: CreatedAt becomes
// created_at. The fixgen command generates Bind-based schemas from tags.
package schema
