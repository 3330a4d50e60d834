package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create workflows table
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);

			-- Components live in a child table keyed by pipeline position so
			-- submission order is preserved exactly. A NULL settings column
			-- means the component was submitted without settings; '{}' means
			-- an empty settings object.
			CREATE TABLE workflow_components (
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				position INTEGER NOT NULL,
				type VARCHAR(50) NOT NULL CHECK (type IN ('import', 'shadow', 'crop', 'export')),
				settings JSONB,
				PRIMARY KEY (workflow_id, position)
			);

			CREATE INDEX idx_workflow_components_workflow_id ON workflow_components(workflow_id);
		`,
	}
}
