package lang

func init() {
	Register(&LanguageSpec{
		Language:          Rust,
		FileExtensions:    []string{".rs"},
		FunctionNodeTypes: []string{"function_item"},
		ClosureNodeTypes:  []string{"closure_expression"},
		CallNodeTypes:     []string{"call_expression"},
		MemberNodeTypes:   []string{"field_expression"},
		BlockNodeTypes:    []string{"block"},
		StatementNodeTypes: []string{
			"expression_statement",
			"let_declaration",
			"empty_statement",
			"attribute_item",
			"inner_attribute_item",
			"function_item",
			"struct_item",
			"enum_item",
			"union_item",
			"trait_item",
			"impl_item",
			"type_item",
			"const_item",
			"static_item",
			"mod_item",
			"use_declaration",
			"extern_crate_declaration",
			"macro_definition",
			"foreign_mod_item",
		},
		AssignmentNodeTypes: []string{"assignment_expression"},
		ImportNodeTypes:     []string{"use_declaration"},
		CommentNodeTypes:    []string{"line_comment", "block_comment"},
		PackageIndicators:   []string{"Cargo.toml"},
	})
}
