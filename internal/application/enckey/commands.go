package enckey

type AddEncryptionKeyCommand struct {
	InstanceID string `json:"instanceId"`
	Identifier string `json:"identifier"`
	Algorithm  string `json:"algorithm"`
	Material   string `json:"material"`
	EditorUser string `json:"editorUser"`
}

func (c AddEncryptionKeyCommand) CommandType() string { return "encryptionKey.Add" }

type RemoveEncryptionKeyCommand struct {
	InstanceID string `json:"instanceId"`
	Identifier string `json:"identifier"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveEncryptionKeyCommand) CommandType() string { return "encryptionKey.Remove" }
