package access

// BlobURL returns the public aggregator URL for a storage blob. Raw blob
// bytes are encrypted; this is only useful for integrity checks and epoch
// status queries, never for reading record content.
func (c *Client) BlobURL(blobID string) string {
	return c.aggregatorURL + "/v1/" + blobID
}
